package funnel

import (
	"fmt"
	"net/url"
	"strings"
)

const RedirectMessageType = "xperience-redirect"

type MessageAction string

const (
	ActionRedirectParent MessageAction = "redirect-parent"
	ActionUpdateIframe   MessageAction = "update-iframe"
)

// RedirectMessage is posted to the hosting parent frame with a wildcard
// target origin. It carries only the destination.
type RedirectMessage struct {
	Type   string        `json:"type"`
	URL    string        `json:"url"`
	Action MessageAction `json:"action"`
}

type FrameMode string

const (
	// SameOrigin: navigate the current document.
	SameOrigin FrameMode = "same_origin"
	// CrossOrigin: the page is embedded and the target is on another origin,
	// so the parent frame has to do the navigation.
	CrossOrigin FrameMode = "cross_origin"
)

// Environment is what the dispatcher needs from the page it runs in.
type Environment interface {
	// Origin is the current page's origin, e.g. "https://pay.example.com".
	Origin() string
	// Embedded reports whether the page is not its own top-level window.
	Embedded() bool
	PostToParent(msg RedirectMessage)
	// Navigate moves the current document.
	Navigate(url string) error
	// NavigateTop attempts a top-level navigation; it may be refused.
	NavigateTop(url string) error
}

// RedirectPlan is the fully decided redirect, independent of any window.
type RedirectPlan struct {
	URL         string          `json:"url"`
	Mode        FrameMode       `json:"mode"`
	Message     RedirectMessage `json:"message"`
	NavigateTop bool            `json:"navigate_top"`
}

// BuildURL resolves the concrete next URL for a decision with the context
// identifiers appended as query parameters.
func BuildURL(decision RoutingDecision, fc Context) (string, error) {
	switch decision.Kind {
	case DecisionNode:
		if decision.Target == nil || decision.Target.RedirectURL == "" {
			return "", fmt.Errorf("node has no redirect url: %w", ErrOfferUnavailable)
		}
		return withParams(decision.Target.RedirectURL, map[string]string{
			"companyId":     fc.CompanyID,
			"flowId":        fc.FlowID,
			"nodeId":        decision.Target.ID,
			"memberId":      fc.MemberID,
			"setupIntentId": fc.SetupIntentID,
		})
	case DecisionConfirmation:
		return withParams(decision.URL, map[string]string{
			"companyId":     fc.CompanyID,
			"flowId":        fc.FlowID,
			"memberId":      fc.MemberID,
			"setupIntentId": fc.SetupIntentID,
			"sessionId":     fc.SessionID,
		})
	case DecisionExternalURL:
		return withParams(decision.URL, map[string]string{
			"companyId":     fc.CompanyID,
			"flowId":        fc.FlowID,
			"memberId":      fc.MemberID,
			"setupIntentId": fc.SetupIntentID,
		})
	default:
		return "", ErrDeadEnd
	}
}

// withParams sets the non-empty params on raw, keeping any query it already has.
func withParams(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse redirect url %q: %w", raw, ErrOfferUnavailable)
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Plan decides, once, how a redirect to target must be carried out from a
// page at currentOrigin.
func Plan(target, currentOrigin string, embedded bool) RedirectPlan {
	if embedded && !sameOrigin(target, currentOrigin) {
		return RedirectPlan{
			URL:         target,
			Mode:        CrossOrigin,
			Message:     RedirectMessage{Type: RedirectMessageType, URL: target, Action: ActionRedirectParent},
			NavigateTop: true,
		}
	}
	return RedirectPlan{
		URL:     target,
		Mode:    SameOrigin,
		Message: RedirectMessage{Type: RedirectMessageType, URL: target, Action: ActionUpdateIframe},
	}
}

// Dispatch builds the next URL for decision and carries the redirect out in env.
func Dispatch(decision RoutingDecision, fc Context, env Environment) (RedirectPlan, error) {
	target, err := BuildURL(decision, fc)
	if err != nil {
		return RedirectPlan{}, err
	}

	plan := Plan(target, env.Origin(), env.Embedded())
	switch plan.Mode {
	case CrossOrigin:
		env.PostToParent(plan.Message)
		// Browsers may block this from a cross-origin child; the message is
		// what the embed script relies on.
		_ = env.NavigateTop(plan.URL)
	default:
		if err := env.Navigate(plan.URL); err != nil {
			return plan, fmt.Errorf("navigate: %w", err)
		}
		env.PostToParent(plan.Message)
	}
	return plan, nil
}

func sameOrigin(target, currentOrigin string) bool {
	cur, err := url.Parse(currentOrigin)
	if err != nil || cur.Host == "" {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return true
	}
	return strings.EqualFold(u.Scheme, cur.Scheme) && strings.EqualFold(u.Host, cur.Host)
}

// RecordingEnvironment captures dispatch effects so they can be handed to a
// page that executes them itself.
type RecordingEnvironment struct {
	PageOrigin  string
	IsEmbedded  bool
	Messages    []RedirectMessage
	NavigatedTo string
	TopURL      string
}

func (e *RecordingEnvironment) Origin() string { return e.PageOrigin }

func (e *RecordingEnvironment) Embedded() bool { return e.IsEmbedded }

func (e *RecordingEnvironment) PostToParent(msg RedirectMessage) {
	e.Messages = append(e.Messages, msg)
}

func (e *RecordingEnvironment) Navigate(url string) error {
	e.NavigatedTo = url
	return nil
}

func (e *RecordingEnvironment) NavigateTop(url string) error {
	e.TopURL = url
	return nil
}
