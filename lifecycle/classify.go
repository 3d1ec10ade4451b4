package lifecycle

import "regexp"

// Kind is the construction path an entity descriptor selects.
type Kind int

const (
	KindGeneric Kind = iota
	KindRobot
	KindActor
)

func (k Kind) String() string {
	switch k {
	case KindRobot:
		return "robot"
	case KindActor:
		return "actor"
	default:
		return "generic"
	}
}

// An opening tag ends at '>', '/' or whitespace before any attributes.
var (
	robotTag = regexp.MustCompile(`<robot[\s/>]`)
	actorTag = regexp.MustCompile(`<actor[\s/>]`)
)

// Classify picks the construction path for descriptor by looking for a robot
// root element, then an actor root element. Anything else is generic.
func Classify(descriptor string) Kind {
	switch {
	case robotTag.MatchString(descriptor):
		return KindRobot
	case actorTag.MatchString(descriptor):
		return KindActor
	default:
		return KindGeneric
	}
}
