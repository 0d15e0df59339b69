package bot

import (
	"fmt"

	"coursebot/internal/domain"
	"coursebot/internal/models"
	"coursebot/internal/repository"
)

// Callback data tokens.
const (
	cbCourse       = "course_"
	cbBuy          = "buy_"
	cbPayment      = "payment_"
	cbCategory     = "cat_courses_"
	cbCategoryMenu = "show_cat_menu"
	cbAllCourses   = "back_courses"
	cbBack         = "back"
	cbCancel       = "cancel"
)

var methodLabels = map[string]string{
	domain.MethodUPI:    "UPI Payment",
	domain.MethodCrypto: "Cryptocurrency",
	domain.MethodPayPal: "PayPal",
	domain.MethodCOD:    "Cash on Delivery",
	domain.MethodGift:   "Gift Card",
}

// methodNames is how instructions and errors refer to a method.
var methodNames = map[string]string{
	domain.MethodUPI:    "UPI",
	domain.MethodCrypto: "Crypto",
	domain.MethodPayPal: "PayPal",
	domain.MethodCOD:    "Cash on Delivery",
	domain.MethodGift:   "Gift Card",
}

func mainMenu() *ReplyKeyboard {
	return &ReplyKeyboard{Rows: [][]string{
		{btnBrowse, btnSearch},
		{btnCategories, btnPurchases},
		{btnRequest, btnDMCA},
		{btnHelp},
	}}
}

func cancelRequestKeyboard() *ReplyKeyboard {
	return &ReplyKeyboard{Rows: [][]string{{btnCancelReq}}, OneTime: true}
}

func courseButton(c *models.Course) []Button {
	return []Button{{
		Text: fmt.Sprintf("%s - %s", c.Title, c.PriceLabel()),
		Data: cbCourse + domain.FormatID(c.ID),
	}}
}

// courseList renders one button per course followed by footer rows.
func courseList(courses []models.Course, footer ...[]Button) Keyboard {
	kb := make(Keyboard, 0, len(courses)+len(footer))
	for i := range courses {
		kb = append(kb, courseButton(&courses[i]))
	}
	return append(kb, footer...)
}

func backToMenuRow() []Button { return []Button{{Text: "⬅️ Back to Main Menu", Data: cbBack}} }
func mainMenuRow() []Button   { return []Button{{Text: "🏠 Main Menu", Data: cbBack}} }

func adminContactRow(url string) []Button {
	return []Button{{Text: "👨‍💼 Buy Directly from Admin", URL: url}}
}

func courseDetailKeyboard(c *models.Course, adminURL string) Keyboard {
	id := domain.FormatID(c.ID)
	var kb Keyboard
	if c.IsFree {
		kb = append(kb, []Button{{Text: "🎁 Get Now for FREE", Data: cbBuy + id}})
	} else {
		kb = append(kb, []Button{{Text: "💲 Buy Now", Data: cbBuy + id}})
	}
	if adminURL != "" {
		kb = append(kb, adminContactRow(adminURL))
	}
	if c.DemoVideoLink != "" {
		kb = append(kb, []Button{{Text: "🎬 DEMO VIDEOS ✅", URL: c.DemoVideoLink}})
	}
	return append(kb, []Button{{Text: "⬅️ Back to Courses", Data: cbAllCourses}})
}

func paymentKeyboard(c *models.Course, methods []string, adminURL string) Keyboard {
	id := domain.FormatID(c.ID)
	var kb Keyboard
	for _, m := range methods {
		kb = append(kb, []Button{{Text: methodLabels[m], Data: cbPayment + m + "_" + id}})
	}
	if adminURL != "" {
		kb = append(kb, adminContactRow(adminURL))
	}
	return append(kb,
		[]Button{{Text: "⬅️ Back to Course", Data: cbCourse + id}},
		mainMenuRow(),
	)
}

func categoriesKeyboard(cats []repository.CategoryCount) Keyboard {
	kb := make(Keyboard, 0, len(cats)+2)
	for _, c := range cats {
		kb = append(kb, []Button{{
			Text: fmt.Sprintf("%s (%d)", c.Name, c.ActiveCourses),
			Data: cbCategory + domain.FormatID(c.ID),
		}})
	}
	return append(kb,
		[]Button{{Text: "📚 All Courses", Data: cbAllCourses}},
		mainMenuRow(),
	)
}

func backToCategoriesRow() []Button {
	return []Button{{Text: "⬅️ Back to Categories", Data: cbCategoryMenu}}
}

func cancelKeyboard() Keyboard {
	return Keyboard{{{Text: "❌ Cancel", Data: cbCancel}}}
}
