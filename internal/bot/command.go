// Package bot is the Telegram front end of the storefront: it decodes
// updates into commands, dispatches them to the services and renders the
// resulting screens as messages with inline keyboards.
package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/checkout"

	"github.com/google/uuid"
)

// Intent is what the user asked for
type Intent int

const (
	IntentUnknown Intent = iota
	IntentStart
	IntentMainMenu
	IntentAbout
	IntentContact
	IntentCatalog
	IntentCategory
	IntentBrand
	IntentProduct
	IntentAddToCart
	IntentCart
	IntentIncrease
	IntentDecrease
	IntentRemove
	IntentCheckout
	IntentPickupPoint
	IntentDate
	IntentPayment
	IntentConfirm
	IntentEdit
	IntentCancelCheckout
	IntentAdmin
)

// DateLayout is the wire format of a pickup date in callback data
const DateLayout = "2006-01-02"

var ErrUnknownCommand = errors.New("unknown command")

// Command is a decoded user action. Only the payload field matching
// Intent is meaningful.
type Command struct {
	Intent  Intent
	ID      uuid.UUID
	Pickup  checkout.PickupPoint
	Date    time.Time
	Payment checkout.PaymentMethod
}

var simpleIntents = map[string]Intent{
	"menu":     IntentMainMenu,
	"about":    IntentAbout,
	"contact":  IntentContact,
	"catalog":  IntentCatalog,
	"cart":     IntentCart,
	"checkout": IntentCheckout,
	"confirm":  IntentConfirm,
	"edit":     IntentEdit,
	"cancel":   IntentCancelCheckout,
}

var idIntents = map[string]Intent{
	"cat":   IntentCategory,
	"brand": IntentBrand,
	"prod":  IntentProduct,
	"add":   IntentAddToCart,
	"inc":   IntentIncrease,
	"dec":   IntentDecrease,
	"rm":    IntentRemove,
}

var intentPrefixes = func() map[Intent]string {
	out := make(map[Intent]string, len(simpleIntents)+len(idIntents))
	for prefix, intent := range simpleIntents {
		out[intent] = prefix
	}
	for prefix, intent := range idIntents {
		out[intent] = prefix
	}
	out[IntentPickupPoint] = "pickup"
	out[IntentDate] = "date"
	out[IntentPayment] = "pay"
	return out
}()

// ParseCallback decodes inline keyboard callback data
func ParseCallback(data string) (Command, error) {
	if intent, ok := simpleIntents[data]; ok {
		return Command{Intent: intent}, nil
	}

	prefix, arg, found := strings.Cut(data, ":")
	if !found || arg == "" {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, data)
	}

	if intent, ok := idIntents[prefix]; ok {
		id, err := uuid.Parse(arg)
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad id in %q", ErrUnknownCommand, data)
		}
		return Command{Intent: intent, ID: id}, nil
	}

	switch prefix {
	case "pickup":
		return Command{Intent: IntentPickupPoint, Pickup: checkout.PickupPoint(arg)}, nil
	case "date":
		date, err := time.ParseInLocation(DateLayout, arg, time.Local)
		if err != nil {
			return Command{}, fmt.Errorf("%w: bad date in %q", ErrUnknownCommand, data)
		}
		return Command{Intent: IntentDate, Date: date}, nil
	case "pay":
		return Command{Intent: IntentPayment, Payment: checkout.PaymentMethod(arg)}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, data)
}

// ParseMessage decodes a text message; only slash commands are understood
func ParseMessage(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}
	// Commands in groups arrive as /start@botname
	name, _, _ := strings.Cut(fields[0], "@")
	switch name {
	case "/start":
		return Command{Intent: IntentStart}, nil
	case "/menu":
		return Command{Intent: IntentMainMenu}, nil
	case "/cart":
		return Command{Intent: IntentCart}, nil
	case "/admin", "/stats":
		return Command{Intent: IntentAdmin}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Data encodes the command as callback data; ParseCallback reverses it
func (c Command) Data() string {
	prefix := intentPrefixes[c.Intent]
	switch c.Intent {
	case IntentCategory, IntentBrand, IntentProduct, IntentAddToCart,
		IntentIncrease, IntentDecrease, IntentRemove:
		return prefix + ":" + c.ID.String()
	case IntentPickupPoint:
		return prefix + ":" + string(c.Pickup)
	case IntentDate:
		return prefix + ":" + c.Date.Format(DateLayout)
	case IntentPayment:
		return prefix + ":" + string(c.Payment)
	}
	return prefix
}
