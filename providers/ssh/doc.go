// Package ssh runs giraffe commands on remote hosts over SSH.
//
// A System owns one connection from golang.org/x/crypto/ssh. Each command runs
// in a fresh session whose command line is assembled from the working
// directory, the environment and the shell-escaped arguments:
//
//	cd '/srv' && env -i 'PATH=/bin' 'ls' '-l'
//
// Files are transferred over SFTP. Importing the package registers the
// exec+ssh scheme:
//
//	sys, err := giraffe.NewSystem(ctx, "exec+ssh://deploy@example.com:22/", giraffe.Attributes{
//		"private-key-path": "/home/deploy/.ssh/id_ed25519",
//	})
package ssh
