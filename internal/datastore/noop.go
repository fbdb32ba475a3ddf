package datastore

// NoopStore satisfies Interface when no database output is enabled. All
// operations succeed and return nothing.
type NoopStore struct{}

func (*NoopStore) Open() error                         { return nil }
func (*NoopStore) Close() error                        { return nil }
func (*NoopStore) SaveSession(*Session) error          { return nil }
func (*NoopStore) GetSession(string) (Session, error)  { return Session{}, nil }
func (*NoopStore) ListSessions(int) ([]Session, error) { return nil, nil }
