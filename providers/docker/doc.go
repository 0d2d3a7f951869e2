// Package docker runs giraffe commands inside existing containers through the
// Docker Engine API.
//
// Each command becomes an exec instance attached over a hijacked connection.
// Without a TTY the multiplexed stream is split back into stdout and stderr;
// the exit status is read by inspecting the exec once output ends. Files are
// copied with the daemon's tar archive endpoints.
//
// Importing the package registers the exec+docker scheme:
//
//	sys, err := giraffe.NewSystem(ctx, "exec+docker://my-container/", nil)
package docker
