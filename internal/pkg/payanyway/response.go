package payanyway

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// Fiscal receipt tags for the merchant's tax regime: full prepayment for a
// service, VAT-exempt.
const (
	paymentMethodTag = "full_prepayment"
	paymentObjectTag = "service"
	vatTag           = "1105"
)

// InventoryItem is one fiscal receipt line.
type InventoryItem struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	PaymentMethod string  `json:"pm"`
	PaymentObject string  `json:"po"`
	VatTag        string  `json:"vatTag"`
}

// NewInventoryItem builds the single receipt line for a credit package.
func NewInventoryItem(name string, priceRub float64) InventoryItem {
	return InventoryItem{
		Name:          name,
		Price:         priceRub,
		Quantity:      1,
		PaymentMethod: paymentMethodTag,
		PaymentObject: paymentObjectTag,
		VatTag:        vatTag,
	}
}

// Receipt carries the purchaser identity and line items of the CHECK
// response.
type Receipt struct {
	Customer  string          `json:"CUSTOMER"`
	Inventory []InventoryItem `json:"INVENTORY"`
}

// CheckResponse is the JSON answer to a CHECK request: "this order exists,
// costs this much, here is the fiscal data".
type CheckResponse struct {
	MntID            string  `json:"MNT_ID"`
	MntTransactionID string  `json:"MNT_TRANSACTION_ID"`
	MntResultCode    string  `json:"MNT_RESULT_CODE"`
	MntDescription   string  `json:"MNT_DESCRIPTION"`
	MntAmount        string  `json:"MNT_AMOUNT"`
	MntSignature     string  `json:"MNT_SIGNATURE"`
	MntAttributes    Receipt `json:"MNT_ATTRIBUTES"`
}

// BuildCheckResponse assembles the CHECK answer for a resolved package.
func BuildCheckResponse(cfg Config, transactionID, customer, packageName string, priceRub float64) CheckResponse {
	return CheckResponse{
		MntID:            cfg.MerchantID,
		MntTransactionID: transactionID,
		MntResultCode:    ResultCodeOrderReady,
		MntDescription:   "Order ready to be paid",
		MntAmount:        FormatAmount(priceRub),
		MntSignature:     ResponseSignature(ResultCodeOrderReady, transactionID, cfg),
		MntAttributes: Receipt{
			Customer:  customer,
			Inventory: []InventoryItem{NewInventoryItem(packageName, priceRub)},
		},
	}
}

// CheckFailure is the opaque JSON rejection of a CHECK request. Like the
// PAY failure it reveals nothing about which check failed.
type CheckFailure struct {
	MntID            string `json:"MNT_ID"`
	MntTransactionID string `json:"MNT_TRANSACTION_ID"`
	MntResultCode    string `json:"MNT_RESULT_CODE"`
	MntSignature     string `json:"MNT_SIGNATURE"`
}

// BuildCheckFailure assembles the CHECK rejection payload.
func BuildCheckFailure(cfg Config, transactionID string) CheckFailure {
	return CheckFailure{
		MntID:            cfg.MerchantID,
		MntTransactionID: transactionID,
		MntResultCode:    ResultCodeFailure,
		MntSignature:     ResponseSignature(ResultCodeFailure, transactionID, cfg),
	}
}

// PayResponse is the XML envelope answering a PAY confirmation.
type PayResponse struct {
	XMLName          xml.Name       `xml:"MNT_RESPONSE"`
	MntID            string         `xml:"MNT_ID"`
	MntTransactionID string         `xml:"MNT_TRANSACTION_ID"`
	MntResultCode    string         `xml:"MNT_RESULT_CODE"`
	MntSignature     string         `xml:"MNT_SIGNATURE"`
	MntAttributes    *PayAttributes `xml:"MNT_ATTRIBUTES,omitempty"`
}

// PayAttributes is the ATTRIBUTE list of the PAY envelope.
type PayAttributes struct {
	Attributes []PayAttribute `xml:"ATTRIBUTE"`
}

// PayAttribute is one KEY/VALUE pair.
type PayAttribute struct {
	Key   string `xml:"KEY"`
	Value string `xml:"VALUE"`
}

// BuildPaySuccess assembles the success envelope. The INVENTORY attribute
// carries the receipt lines as a JSON array embedded in XML text; the
// processor parses it out of the escaped string, so it must not be turned
// into native XML nodes.
func BuildPaySuccess(cfg Config, transactionID, customer, packageName string, priceRub float64) (PayResponse, error) {
	inventory, err := json.Marshal([]InventoryItem{NewInventoryItem(packageName, priceRub)})
	if err != nil {
		return PayResponse{}, err
	}
	return PayResponse{
		MntID:            cfg.MerchantID,
		MntTransactionID: transactionID,
		MntResultCode:    ResultCodePaid,
		MntSignature:     ResponseSignature(ResultCodePaid, transactionID, cfg),
		MntAttributes: &PayAttributes{
			Attributes: []PayAttribute{
				{Key: "CUSTOMER", Value: customer},
				{Key: "INVENTORY", Value: string(inventory)},
			},
		},
	}, nil
}

// BuildPayFailure assembles the opaque failure envelope. It carries no
// attributes and never says why the notification was rejected.
func BuildPayFailure(cfg Config, transactionID string) PayResponse {
	return PayResponse{
		MntID:            cfg.MerchantID,
		MntTransactionID: transactionID,
		MntResultCode:    ResultCodeFailure,
		MntSignature:     ResponseSignature(ResultCodeFailure, transactionID, cfg),
	}
}

// EncodeXML renders the envelope with the XML declaration the processor
// expects.
func (r PayResponse) EncodeXML() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// FormatAmount renders a major-unit amount the way the processor sends it.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
