package refresh

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MrEthical07/skillsync/jwt"
	"github.com/MrEthical07/skillsync/tokenstore"
)

// Policy decides when stored credentials should be exchanged before use.
type Policy struct {
	// Leeway treats an access token as expired this long before its exp.
	Leeway time.Duration
	Clock  clockwork.Clock
}

// NeedsExchange reports whether pair should be refreshed first: a refresh
// token must be present and the access token must be missing or past its exp
// claim. Tokens that cannot be inspected are left for the server to judge.
func (p Policy) NeedsExchange(pair tokenstore.Pair) bool {
	if !pair.HasRefresh() {
		return false
	}
	if !pair.HasAccess() {
		return true
	}

	claims, err := jwt.Inspect(pair.Access)
	if err != nil {
		return false
	}
	expired, err := claims.Expired(p.now(), p.Leeway)
	if err != nil {
		return false
	}
	return expired
}

func (p Policy) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock.Now()
}
