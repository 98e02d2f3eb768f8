package bot

import (
	"fmt"
	"strings"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// View is a rendered Response
type View struct {
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
	// Alert is shown as a callback popup
	Alert string
	// Silent means there is no message to send or edit
	Silent bool
}

const currency = "₽"

var noticeText = map[Notice]string{
	NoticeAddedToCart:     "Added to cart",
	NoticeOutOfStock:      "Not enough stock for this product",
	NoticeMinimumQuantity: "Quantity cannot go below 1. Use Remove instead",
	NoticeLineGone:        "This item is no longer available",
	NoticeEmptyCart:       "Your cart is empty",
	NoticePaymentDisabled: "Card payment is coming soon. Please choose cash",
	NoticeDateNotOffered:  "That date is no longer available",
	NoticeSessionExpired:  "Checkout has expired. Please start again",
	NoticeFailed:          "Something went wrong. Please try again",
}

var weekdays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func button(text string, cmd Command) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, cmd.Data())
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func money(d interface{ StringFixed(int32) string }) string {
	return d.StringFixed(2) + " " + currency
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		row(button("🛍️ Catalog", Command{Intent: IntentCatalog})),
		row(button("🛒 Cart", Command{Intent: IntentCart})),
		row(button("📞 Contact the seller", Command{Intent: IntentContact})),
		row(button("ℹ️ About the shop", Command{Intent: IntentAbout})),
	)
}

func backToMenu() []tgbotapi.InlineKeyboardButton {
	return row(button("🔙 Main menu", Command{Intent: IntentMainMenu}))
}

// Render turns a Response into message text and keyboard
func Render(resp Response) View {
	view := View{Alert: noticeText[resp.Notice]}
	if resp.KeepScreen {
		view.Silent = true
		return view
	}

	switch resp.Screen {
	case ScreenMainMenu:
		view.Text = "🏪 Welcome to the shop!\n\nChoose an action:"
		view.Keyboard = mainMenuKeyboard()
	case ScreenAbout:
		view.Text = "🏪 About the shop\n\n• Pickup on weekdays\n• Cash on pickup\n\nAsk our manager anything!"
		view.Keyboard = mainMenuKeyboard()
	case ScreenContact:
		view.Text = "📞 Contact the seller\n\nWrite to us in private messages and a manager will answer shortly."
		view.Keyboard = mainMenuKeyboard()
	case ScreenCategories:
		renderCategories(&view, resp.Categories)
	case ScreenBrands:
		renderBrands(&view, resp.Brands, resp.BackTo)
	case ScreenProducts:
		renderProducts(&view, resp.Products, resp.BackTo)
	case ScreenProduct:
		renderProduct(&view, resp.Product, resp.BackTo)
	case ScreenProductMissing:
		view.Text = "❌ Product not found"
		view.Keyboard = keyboard(row(button("🔙 Back", resp.BackTo)))
	case ScreenCart:
		renderCart(&view, resp.Cart)
	case ScreenPickupPoints:
		renderPickupPoints(&view)
	case ScreenDates:
		renderDates(&view, resp.Dates)
	case ScreenPayment:
		view.Text = "💳 Choose a payment method:"
		view.Keyboard = keyboard(
			row(button("💵 Cash on pickup", Command{Intent: IntentPayment, Payment: checkout.PaymentCash})),
			row(button("💳 Card (coming soon)", Command{Intent: IntentPayment, Payment: checkout.PaymentCard})),
			row(button("❌ Cancel", Command{Intent: IntentCancelCheckout})),
		)
	case ScreenConfirmation:
		renderConfirmation(&view, resp)
	case ScreenOrderPlaced:
		renderOrderPlaced(&view, resp.Order)
	case ScreenCheckoutCancelled:
		view.Text = "❌ Checkout cancelled. Your cart is kept."
		view.Keyboard = keyboard(
			row(button("🛒 Cart", Command{Intent: IntentCart})),
			backToMenu(),
		)
	case ScreenAdminStats:
		renderStats(&view, resp.Stats)
	case ScreenAccessDenied:
		view.Text = "❌ Access denied"
	default:
		view.Text = "Unknown screen"
		view.Keyboard = keyboard(backToMenu())
	}
	return view
}

func renderCategories(view *View, categories []*domain.Category) {
	if len(categories) == 0 {
		view.Text = "📁 The catalog is empty for now"
		view.Keyboard = keyboard(backToMenu())
		return
	}
	view.Text = "📁 Choose a category:"
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, row(button("📁 "+c.Name, Command{Intent: IntentCategory, ID: c.ID})))
	}
	view.Keyboard = keyboard(append(rows, backToMenu())...)
}

func renderBrands(view *View, brands []*domain.Brand, back Command) {
	view.Text = "🏷️ Choose a brand:"
	if len(brands) == 0 {
		view.Text = "🏷️ No brands in this category yet"
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(brands)+1)
	for _, b := range brands {
		rows = append(rows, row(button("🏷️ "+b.Name, Command{Intent: IntentBrand, ID: b.ID})))
	}
	view.Keyboard = keyboard(append(rows, row(button("🔙 Back", back)))...)
}

func renderProducts(view *View, products []*domain.Product, back Command) {
	view.Text = "📦 Choose a product:"
	if len(products) == 0 {
		view.Text = "📦 No products from this brand yet"
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		icon := "✅"
		if p.Quantity == 0 {
			icon = "❌"
		}
		label := fmt.Sprintf("%s %s - %s", icon, p.Name, money(p.Price))
		rows = append(rows, row(button(label, Command{Intent: IntentProduct, ID: p.ID})))
	}
	view.Keyboard = keyboard(append(rows, row(button("🔙 Back", back)))...)
}

var stockText = map[domain.StockStatus]string{
	domain.StockUnavailable: "❌ Unavailable",
	domain.StockSoldOut:     "❌ Sold out",
	domain.StockLow:         "⚠️ Running low",
	domain.StockInStock:     "✅ In stock",
}

func renderProduct(view *View, p *domain.ProductDetail, back Command) {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	fmt.Fprintf(&b, "🏷️ Brand: %s\n📁 Category: %s\n💰 Price: %s\n%s (%d left)",
		p.BrandName, p.CategoryName, money(p.Price), stockText[domain.StockStatusOf(&p.Product)], p.Quantity)
	view.Text = b.String()

	rows := [][]tgbotapi.InlineKeyboardButton{}
	if p.Available(1) {
		rows = append(rows, row(button("➕ Add to cart", Command{Intent: IntentAddToCart, ID: p.ID})))
	}
	rows = append(rows,
		row(button("🛒 Cart", Command{Intent: IntentCart})),
		row(button("🔙 Back", back)),
	)
	view.Keyboard = keyboard(rows...)
}

func renderCart(view *View, cart *domain.Cart) {
	if cart == nil || cart.IsEmpty() {
		view.Text = "🛒 Your cart is empty"
		view.Keyboard = keyboard(
			row(button("🛍️ Catalog", Command{Intent: IntentCatalog})),
			backToMenu(),
		)
		return
	}

	var b strings.Builder
	b.WriteString("🛒 Your cart:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 2*len(cart.Lines)+3)
	for i, line := range cart.Lines {
		fmt.Fprintf(&b, "%d. %s\n   %d × %s = %s\n", i+1, line.Name, line.Quantity, money(line.Price), money(line.Subtotal()))
		if !line.Sufficient() {
			fmt.Fprintf(&b, "   ⚠️ only %d available\n", line.InStock)
		}
		rows = append(rows,
			row(
				button("➖", Command{Intent: IntentDecrease, ID: line.ID}),
				button(fmt.Sprintf("%s (%d)", line.Name, line.Quantity), Command{Intent: IntentCart}),
				button("➕", Command{Intent: IntentIncrease, ID: line.ID}),
			),
			row(button("🗑️ Remove", Command{Intent: IntentRemove, ID: line.ID})),
		)
	}
	fmt.Fprintf(&b, "\n💰 Total: %s", money(cart.Total()))
	view.Text = b.String()

	rows = append(rows,
		row(button("✅ Checkout", Command{Intent: IntentCheckout})),
		row(button("🛍️ Continue shopping", Command{Intent: IntentCatalog})),
		backToMenu(),
	)
	view.Keyboard = keyboard(rows...)
}

func renderPickupPoints(view *View) {
	view.Text = "📍 Choose a pickup point:"
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, p := range checkout.PickupPoints() {
		rows = append(rows, row(button("🏢 "+p.Address(), Command{Intent: IntentPickupPoint, Pickup: p})))
	}
	rows = append(rows, row(button("❌ Cancel", Command{Intent: IntentCancelCheckout})))
	view.Keyboard = keyboard(rows...)
}

// dateLabel formats a pickup date as "Mon 02.01.2006"
func dateLabel(d time.Time) string {
	return weekdays[d.Weekday()] + " " + d.Format("02.01.2006")
}

func renderDates(view *View, dates []time.Time) {
	view.Text = fmt.Sprintf("📅 Choose a pickup date (pickup time %s):", checkout.DeliveryTimeSlot)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(dates)+1)
	for _, d := range dates {
		rows = append(rows, row(button(dateLabel(d), Command{Intent: IntentDate, Date: d})))
	}
	rows = append(rows, row(button("❌ Cancel", Command{Intent: IntentCancelCheckout})))
	view.Keyboard = keyboard(rows...)
}

func renderConfirmation(view *View, resp Response) {
	preview := resp.Preview
	session := preview.Session

	var b strings.Builder
	b.WriteString("📋 Please check your order:\n\n")
	for _, line := range preview.Cart.Lines {
		fmt.Fprintf(&b, "• %s × %d = %s\n", line.Name, line.Quantity, money(line.Subtotal()))
	}
	fmt.Fprintf(&b, "\n💰 Total: %s\n\n", money(preview.Cart.Total()))
	fmt.Fprintf(&b, "👤 Name: %s\n", session.CustomerName)
	fmt.Fprintf(&b, "📍 Pickup: %s\n", session.PickupPoint.Address())
	fmt.Fprintf(&b, "📅 Date: %s, %s\n", dateLabel(session.Date), session.TimeSlot)
	b.WriteString("💵 Payment: cash on pickup")
	view.Text = b.String()

	view.Keyboard = keyboard(
		row(button("✅ Confirm order", Command{Intent: IntentConfirm})),
		row(button("✏️ Edit details", Command{Intent: IntentEdit})),
		row(button("❌ Cancel", Command{Intent: IntentCancelCheckout})),
	)
}

func renderOrderPlaced(view *View, order *domain.Order) {
	view.Text = fmt.Sprintf(
		"✅ Order #%d placed!\n\n💰 Total: %s\n📍 Pickup: %s\n📅 %s, %s\n\nWe will see you there.",
		order.Number,
		money(order.TotalAmount),
		order.Delivery.Address,
		dateLabel(order.Delivery.Date),
		order.Delivery.TimeSlot,
	)
	view.Keyboard = keyboard(backToMenu())
}

func renderStats(view *View, stats *domain.OrderStats) {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Orders: %d\n\n", stats.TotalOrders)
	for _, status := range domain.OrderStatuses {
		fmt.Fprintf(&b, "• %s: %d\n", status, stats.ByStatus[status])
	}
	fmt.Fprintf(&b, "\n💰 Revenue: %s", money(stats.Revenue))
	view.Text = b.String()
}
