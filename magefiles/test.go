//go:build mage

package main

import "github.com/magefile/mage/sh"

// Test runs the unit test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs static analysis over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}
