package bind_group_provider

// BufferWrite describes a single GPU buffer write targeting a binding of a BindGroupProvider at
// a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
