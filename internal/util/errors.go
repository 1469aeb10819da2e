package util

// ErrPublic is an error whose message is safe to echo verbatim to API
// clients, anything else only ever reaches the logs.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

func (e ErrPublic) Is(v error) bool {
	_, ok := v.(ErrPublic)
	return ok
}
