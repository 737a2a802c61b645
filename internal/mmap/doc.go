// Package mmap maps matrix files read-only into memory.
//
// The local blob store decodes matrix files straight out of the mapping, so
// a file is read once, sequentially, without an intermediate heap copy:
//
//	m, err := mmap.Open("y.fmcs")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix systems use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping may be read from several goroutines. Close is idempotent, but no
// slice obtained from Bytes may be touched after Close returns.
package mmap
