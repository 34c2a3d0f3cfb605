package notionsync

import (
	"github.com/dvloznov/edufin/internal/ledger"
	"github.com/jomei/notionapi"
)

// Property names of the payments database.
const (
	PropTitle         = "Fee"
	PropTransactionID = "Transaction ID"
	PropStudent       = "Student"
	PropAmount        = "Amount"
	PropDate          = "Date"
	PropMethod        = "Method"
	PropStatus        = "Status"
	PropReceipt       = "Receipt"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

// EntryToNotionProperties maps a ledger entry onto payments database properties.
func EntryToNotionProperties(e ledger.Entry) notionapi.Properties {
	title := e.FeeTitle
	if title == "" {
		title = "Payment"
	}
	date := notionapi.Date(e.Date)

	props := notionapi.Properties{
		PropTitle:         notionapi.TitleProperty{Title: richText(title)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(e.TransactionID)},
		PropAmount:        notionapi.NumberProperty{Number: float64(e.Amount)},
		PropDate:          notionapi.DateProperty{Date: &notionapi.DateObject{Start: &date}},
		PropStatus:        notionapi.SelectProperty{Select: notionapi.Option{Name: string(e.Status)}},
	}

	if e.MethodLabel != "" {
		props[PropMethod] = notionapi.SelectProperty{Select: notionapi.Option{Name: e.MethodLabel}}
	}

	student := e.StudentName
	if student == "" {
		student = e.StudentID
	}
	if student != "" {
		props[PropStudent] = notionapi.RichTextProperty{RichText: richText(student)}
	}

	if e.ReceiptID != "" {
		props[PropReceipt] = notionapi.RichTextProperty{RichText: richText(e.ReceiptID)}
	}

	return props
}

// extractTransactionID reads the Transaction ID property, or "".
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return ""
	}
	if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
		return rt.RichText[0].PlainText
	}
	return ""
}
