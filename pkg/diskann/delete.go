package diskann

// LazyDelete marks tag's point as deleted without touching the graph.
// An unknown tag is a no-op, matching delete's idempotent semantics: a
// caller that deletes the same tag twice, or a tag it's unsure was
// ever inserted, should not have to special-case the error.
func (idx *Index[T]) LazyDelete(tag uint32) error {
	if idx.labels != nil {
		return ErrLabelsUnsupportedForDelete
	}
	slot, ok := idx.tags.Get(tag)
	if !ok {
		return nil
	}
	idx.tomb.Add(slot)
	if idx.metrics != nil {
		idx.metrics.RecordDelete()
	}
	return nil
}
