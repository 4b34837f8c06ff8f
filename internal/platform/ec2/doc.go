// Package ec2 implements cloud.Provider on Amazon EC2. Groups are EC2
// security groups referenced by name, volumes are EBS volumes.
package ec2
