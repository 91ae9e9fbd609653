package loader

// Record is one slot of a block: the file contents, or the error that
// prevented reading them.
type Record struct {
	Data []byte
	Err  error
}

// BufferIn holds one element (for example the image or the annotation) of
// every record in a block, in manifest order.
type BufferIn struct {
	records []Record
}

// NewBufferIn creates an empty buffer
func NewBufferIn() *BufferIn {
	return &BufferIn{}
}

// Add appends a slot
func (b *BufferIn) Add(data []byte, err error) {
	b.records = append(b.records, Record{Data: data, Err: err})
}

// Len returns the number of records held
func (b *BufferIn) Len() int {
	return len(b.records)
}

// Record returns slot i
func (b *BufferIn) Record(i int) Record {
	return b.records[i]
}

// Data returns the bytes of slot i together with its stored read error
func (b *BufferIn) Data(i int) ([]byte, error) {
	r := b.records[i]
	return r.Data, r.Err
}

// Records returns all slots
func (b *BufferIn) Records() []Record {
	return b.records
}

// Reset drops all slots
func (b *BufferIn) Reset() {
	b.records = nil
}

// BufferArray holds one BufferIn per manifest element
type BufferArray []*BufferIn

// NewBufferArray allocates n empty buffers
func NewBufferArray(n int) BufferArray {
	arr := make(BufferArray, n)
	for i := range arr {
		arr[i] = NewBufferIn()
	}
	return arr
}
