package storage

import "context"

// KV is the string-keyed store the lifecycle stores persist through. A
// missing key is reported through the ok flag, not an error, mirroring the
// get/set/remove contract of the mobile async-storage bridge.
type KV interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
