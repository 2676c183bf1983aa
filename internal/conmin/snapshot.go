package conmin

// Snapshot is one driver instance's private copy of both kernel common
// blocks. Because the kernel itself has no instance concept, every driver
// must Restore its snapshot immediately before a kernel call and Save it
// immediately after; interleaved drivers then behave as if each owned a
// private kernel.
//
// Save and Restore copy whole blocks, never individual fields, so a snapshot
// can never hold a partial session. The field-for-field correspondence with
// Blocks is a structural property of the types: a missing or renamed field
// fails to compile rather than surfacing at runtime.
type Snapshot struct {
	CNMN1  CNMN1
	CONSAV CONSAV
}

// Capture returns a snapshot holding whatever the kernel's global state is
// right now. Drivers capture at construction time.
func Capture() *Snapshot {
	s := &Snapshot{}
	s.Save()
	return s
}

// Save overwrites the snapshot with the current global blocks.
func (s *Snapshot) Save() {
	s.CNMN1 = Blocks.CNMN1
	s.CONSAV = Blocks.CONSAV
}

// Restore overwrites the global blocks with the snapshot, trampling whatever
// any other instance left there.
func (s *Snapshot) Restore() {
	Blocks.CNMN1 = s.CNMN1
	Blocks.CONSAV = s.CONSAV
}
