package client

import "sync/atomic"

// identity reports the token subject and the connectivity monitor's view of
// the remote store.
type identity struct {
	userID int64
	online atomic.Pointer[func() bool]
}

func (i *identity) UserID() int64 {
	return i.userID
}

func (i *identity) Online() bool {
	fn := i.online.Load()
	return fn != nil && (*fn)()
}

func (i *identity) setOnlineSource(fn func() bool) {
	i.online.Store(&fn)
}
