// Package userdata renders the bootstrap payload handed to new instances.
//
// Templates carry %TOKEN% placeholders that are replaced literally. The
// rendered script is gzip-compressed before it is passed to the provider.
package userdata
