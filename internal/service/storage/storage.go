package storage

// Copier is implemented by values that can produce an independent duplicate
type Copier[V any] interface {
	Copy() V
}

// Storage defines interface for any object storage
type Storage[K comparable, V Copier[V]] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Update(key K, fn func(value V)) bool
	Delete(key K) bool
	GetAll() map[K]V
	GetAllValues() []V
	GetDirty() (map[K]V, uint64)
	ClearDirty(keys []K, revision uint64)
	GetDeleted() (map[K]uint64, uint64)
	ClearDeleted(revision uint64)
	ForEach(fn func(key K, value V) bool)
	Count() int
}
