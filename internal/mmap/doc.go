// Package mmap maps saved model files into memory, read-only.
//
//	r, err := mmap.Map("reference.vsm")
//	if err != nil { ... }
//	defer r.Close()
//	data := r.Bytes()
//
// Regions are advised for sequential access on Unix; model files are decoded
// front to back exactly once. Bytes is valid only until Close.
package mmap
