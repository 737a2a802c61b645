// Package hash provides the checksums used by featmap's persisted formats.
//
// CRC32-Castagnoli protects encoded matrices (csr.Marshal) and is sent as
// the x-amz-checksum-crc32c value on S3 uploads.
package hash
