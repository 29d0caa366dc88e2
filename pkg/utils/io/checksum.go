package io

import (
	"crypto/sha256"
	"hash"
	"io"
)

type ChecksumWriter interface {
	io.Writer
	Sum() []byte
}

type ChecksumReader interface {
	io.Reader

	// Get Checksum calcurated from bytes have been read
	Sum() []byte
}

type SHA256Writer struct {
	dest io.Writer
	sha  hash.Hash
}

func NewSHA256Writer(dest io.Writer) ChecksumWriter {
	return &SHA256Writer{
		dest: dest,
		sha:  sha256.New(),
	}
}

func (sw *SHA256Writer) Write(buf []byte) (int, error) {
	sw.sha.Write(buf)
	return sw.dest.Write(buf)
}

// Get SHA256 Checksum.
func (sw *SHA256Writer) Sum() []byte {
	return sw.sha.Sum(nil)
}

type SHA256Reader struct {
	source io.Reader
	sha    hash.Hash
}

func NewSHA256Reader(source io.Reader) ChecksumReader {
	return &SHA256Reader{
		source: source,
		sha:    sha256.New(),
	}
}

func (sr *SHA256Reader) Read(p []byte) (int, error) {
	n, err := sr.source.Read(p)
	if 0 < n {
		sr.sha.Write(p[:n])
	}
	return n, err
}

func (sr *SHA256Reader) Sum() []byte {
	return sr.sha.Sum(nil)
}
