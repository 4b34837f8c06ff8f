// Package ssh runs commands on cluster instances over SSH.
//
// A single [Client] holds the parsed key and connection settings and can run
// commands against any host. Connections are established per command and
// retried while a freshly booted instance brings up its SSH daemon.
//
// Host key verification is disabled by default because instances are
// short-lived; set HostKeyCallback to verify keys.
package ssh
