package mutable_test

import (
	"fmt"

	"pipelined.dev/rack/mutable"
)

type knob struct {
	mutable.Context
	position float64
}

func (k *knob) turn(position float64) mutable.Mutation {
	return k.Context.Mutate(func() error {
		k.position = position
		return nil
	})
}

func Example_mutation() {
	k := &knob{Context: mutable.Mutable()}
	fmt.Println(k.position)

	// mutation is created, but not applied yet
	m := k.turn(0.5)
	fmt.Println(k.position)

	m.Apply()
	fmt.Println(k.position)

	// Output:
	// 0
	// 0
	// 0.5
}
