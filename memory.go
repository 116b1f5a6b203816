package citadel

// Memory is a guest's linear memory as seen from the host. Every access is
// bounds-checked and fails instead of trapping.
type Memory interface {
	Check(offset, length uint32) error
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}
