// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - FakeProvider: in-memory cloud.Provider with scripted instance lifecycles
//   - ConfigBuilder: Fluent builder for creating test configurations
//   - SeedCluster: a running cluster with groups already in place
//   - MockRunner, MockCounter, MockPublicIP: testify mocks of the remote hooks
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithStateDir(t.TempDir()).
//	    WithFastTimeouts().
//	    Build()
//
//	provider := testing.NewFakeProvider()
//	fixture := testing.SeedCluster(provider, "prod", 2)
package testing
