package core

import "hash/crc32"

// HashName returns the stable 32-bit hash used to identify names (resource
// types, subsystems, uniforms) across process runs and serialized snapshots.
// The choice of CRC-32/IEEE is part of the on-disk format; do not change it.
func HashName(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(name))
}
