// Package invoketest provides a behavioral contract suite for giraffe
// execution systems. Provider tests call Verify; the giraffe CLI runs the
// same cases against a live URI through Run.
package invoketest

// AllContracts returns all test cases for the contract test suite.
func AllContracts() []TestCase {
	const initialCapacity = 40

	contracts := make([]TestCase, 0, initialCapacity)

	contracts = append(contracts, coreContracts()...)
	contracts = append(contracts, contextContracts()...)
	contracts = append(contracts, lifecycleContracts()...)
	contracts = append(contracts, systemContracts()...)
	contracts = append(contracts, fileContracts()...)
	contracts = append(contracts, errorContracts()...)

	return contracts
}
