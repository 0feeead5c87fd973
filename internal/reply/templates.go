package reply

import (
	"context"
	"strings"
)

// DefaultRotation is the Tamil-English rotation used by the lightweight webhook.
var DefaultRotation = []string{
	"Anna evening la irukenga?",
	"SBI Egmore account issue aa?",
	"AC 1234567890123456 enna sir?",
	"GPay ID share pannunga",
	"Link forward pannunga check pannuren",
}

// DefaultScript is the scripted persona conversation, replayed in order.
var DefaultScript = []string{
	"My account is blocked? Aiyoh, really? I have EMI deducted tomorrow! What should I do sir?",
	"Sir, I am trying to open the link but it is not working. My network is slow. Can you send again?",
	"I have clicked it. It is asking for password. Should I give? I am scared.",
	"Sir, why you need my PIN? My son said never share PIN. But I need to unlock account no?",
	"Okay okay, I am entering details. Wait... it says 'Invalid Request'. Are you sure this is SBI?",
	"Sir, can I just Google Pay you the penalty? Accessing bank site is too hard for me.",
}

// DefaultScriptExhausted is sent once the script runs out.
const DefaultScriptExhausted = "Sir? Are you there? I am waiting."

// Rotation cycles through fixed replies indexed by turn.
type Rotation struct {
	replies []string
}

// NewRotation creates a rotation. Empty replies select DefaultRotation.
func NewRotation(replies []string) *Rotation {
	if len(replies) == 0 {
		replies = DefaultRotation
	}
	return &Rotation{replies: replies}
}

// Name implements Strategy.
func (r *Rotation) Name() string { return NameRotation }

// Reply returns replies[turn mod N].
func (r *Rotation) Reply(_ context.Context, c Context) (Result, error) {
	i := c.Turn % len(r.replies)
	if i < 0 {
		i += len(r.replies)
	}
	return Result{Text: r.replies[i], Strategy: NameRotation}, nil
}

// Script plays replies in order, one per turn, then repeats a closing line.
type Script struct {
	replies   []string
	exhausted string
}

// NewScript creates a script. Empty arguments select the defaults.
func NewScript(replies []string, exhausted string) *Script {
	if len(replies) == 0 {
		replies = DefaultScript
	}
	if exhausted == "" {
		exhausted = DefaultScriptExhausted
	}
	return &Script{replies: replies, exhausted: exhausted}
}

// Name implements Strategy.
func (s *Script) Name() string { return NameScript }

// Reply returns the script line for the turn (turn 1 is the first line).
func (s *Script) Reply(_ context.Context, c Context) (Result, error) {
	i := c.Turn - 1
	if i < 0 {
		i = 0
	}
	if i >= len(s.replies) {
		return Result{Text: s.exhausted, Strategy: NameScript}, nil
	}
	return Result{Text: s.replies[i], Strategy: NameScript}, nil
}

// Route maps a trigger word to a canned reply.
type Route struct {
	Keyword string
	Reply   string
}

// DefaultRoutes are checked in priority order.
var DefaultRoutes = []Route{
	{"account", "Which account sir? SBI Egmore or the salary one? Please send full account number and IFSC, I will check passbook."},
	{"otp", "OTP enna sir? Message vandhuchu but my spectacles are not here. Konjam wait pannunga."},
	{"upi", "UPI ID share pannunga sir, I will try GPay. Is it paytm or oksbi?"},
	{"link", "Link open aagala sir. Can you send it again? My network is very slow."},
	{"blocked", "Aiyoh, blocked ah? My pension comes to this account only. What should I do now sir?"},
}

// KeywordRouter replies to the first matching keyword and otherwise
// defers to a fallback strategy.
type KeywordRouter struct {
	routes   []Route
	fallback Strategy
}

// NewKeywordRouter creates a router. Nil arguments select DefaultRoutes and
// the default rotation.
func NewKeywordRouter(routes []Route, fallback Strategy) *KeywordRouter {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	if fallback == nil {
		fallback = NewRotation(nil)
	}
	return &KeywordRouter{routes: routes, fallback: fallback}
}

// Name implements Strategy.
func (k *KeywordRouter) Name() string { return NameKeyword }

// Reply implements Strategy.
func (k *KeywordRouter) Reply(ctx context.Context, c Context) (Result, error) {
	lower := strings.ToLower(c.Message)
	for _, r := range k.routes {
		if strings.Contains(lower, r.Keyword) {
			return Result{Text: r.Reply, Strategy: NameKeyword}, nil
		}
	}
	return k.fallback.Reply(ctx, c)
}
