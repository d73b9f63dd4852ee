// Package reembed regenerates embeddings for every stored chunk, typically
// after switching to a different embedding model.
package reembed
