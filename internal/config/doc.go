// Package config defines the operator configuration shared by every
// command: provider selection and credentials, instance defaults, the
// bootstrap environment, where cluster state is kept, and timeouts.
//
// Configuration is read from a YAML file. Credentials and timeouts may be
// overridden from the environment, which can itself be seeded from a dotenv
// file.
package config
