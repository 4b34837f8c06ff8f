// Package clientconfig renders the site configuration a local client uses to
// reach a running cluster.
package clientconfig

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/hdcluster/internal/util/naming"
)

// FileName is the name of the rendered file inside the cluster directory.
const FileName = "hadoop-site.xml"

// Default ports of the coordinator services the client talks to.
const (
	FilesystemPort = 8020
	SchedulerPort  = 8021
)

const header = `<?xml version="1.0"?>
<?xml-stylesheet type="text/xsl" href="configuration.xsl"?>
<!-- Put site-specific property overrides in this file. -->
`

// Credentials are the object-store credentials embedded in the file.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Property is a single name/value entry.
type Property struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

// Configuration is the root element of a site file.
type Configuration struct {
	XMLName    xml.Name   `xml:"configuration"`
	Properties []Property `xml:"property"`
}

// Get returns the value of the named property.
func (c Configuration) Get(name string) (string, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// New returns the client configuration for a cluster whose coordinator is
// reachable at coordinatorHost. Traffic is routed through a local SOCKS proxy.
func New(coordinatorHost string, creds Credentials) Configuration {
	return Configuration{Properties: []Property{
		{Name: "hadoop.job.ugi", Value: "root,root"},
		{Name: "fs.default.name", Value: fmt.Sprintf("hdfs://%s:%d/", coordinatorHost, FilesystemPort)},
		{Name: "mapred.job.tracker", Value: fmt.Sprintf("%s:%d", coordinatorHost, SchedulerPort)},
		{Name: "hadoop.socks.server", Value: "localhost:6666"},
		{Name: "hadoop.rpc.socket.factory.class.default", Value: "org.apache.hadoop.net.SocksSocketFactory"},
		{Name: "fs.s3.awsAccessKeyId", Value: creds.AccessKeyID},
		{Name: "fs.s3.awsSecretAccessKey", Value: creds.SecretAccessKey},
		{Name: "fs.s3n.awsAccessKeyId", Value: creds.AccessKeyID},
		{Name: "fs.s3n.awsSecretAccessKey", Value: creds.SecretAccessKey},
	}}
}

// Marshal renders c as an XML document.
func (c Configuration) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal client configuration: %w", err)
	}
	out := make([]byte, 0, len(header)+len(body)+1)
	out = append(out, header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

// Parse decodes a site file.
func Parse(data []byte) (Configuration, error) {
	var c Configuration
	if err := xml.Unmarshal(data, &c); err != nil {
		return Configuration{}, fmt.Errorf("failed to parse client configuration: %w", err)
	}
	return c, nil
}

// Path returns where the configuration of cluster lives under stateDir.
func Path(stateDir, cluster string) string {
	return filepath.Join(stateDir, naming.ClientConfigDir(cluster), FileName)
}

// Write renders c to the cluster's directory under stateDir, creating it if
// needed, and returns the file path. The file holds credentials, so it is
// only readable by the owner.
func Write(stateDir, cluster string, c Configuration) (string, error) {
	data, err := c.Marshal()
	if err != nil {
		return "", err
	}
	path := Path(stateDir, cluster)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create cluster directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
