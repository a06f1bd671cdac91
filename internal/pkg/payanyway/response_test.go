package payanyway

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildCheckResponse(t *testing.T) {
	resp := BuildCheckResponse(testConfig, "T100", "user@example.com", "250 credits", 500)

	if resp.MntResultCode != ResultCodeOrderReady {
		t.Fatalf("result code = %q, want %q", resp.MntResultCode, ResultCodeOrderReady)
	}
	if resp.MntAmount != "500.00" {
		t.Fatalf("amount = %q, want %q", resp.MntAmount, "500.00")
	}
	if resp.MntSignature != ResponseSignature(ResultCodeOrderReady, "T100", testConfig) {
		t.Fatalf("check response signature mismatch")
	}
	if resp.MntAttributes.Customer != "user@example.com" {
		t.Fatalf("customer = %q", resp.MntAttributes.Customer)
	}
	if len(resp.MntAttributes.Inventory) != 1 {
		t.Fatalf("expected exactly one receipt line, got %d", len(resp.MntAttributes.Inventory))
	}

	item := resp.MntAttributes.Inventory[0]
	if item.Quantity != 1 || item.Price != 500 || item.Name != "250 credits" {
		t.Fatalf("unexpected receipt line: %+v", item)
	}
	if item.PaymentMethod == "" || item.PaymentObject == "" || item.VatTag == "" {
		t.Fatalf("fiscal tags must be set: %+v", item)
	}
}

func TestBuildPaySuccessEncodesInventoryAsEscapedJSON(t *testing.T) {
	resp, err := BuildPaySuccess(testConfig, "T100", "user@example.com", "250 credits", 500)
	if err != nil {
		t.Fatalf("BuildPaySuccess: %v", err)
	}

	out, err := resp.EncodeXML()
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	xmlBody := string(out)

	if !strings.HasPrefix(xmlBody, "<?xml") {
		t.Fatalf("missing XML declaration: %q", xmlBody[:20])
	}
	if !strings.Contains(xmlBody, "<MNT_RESULT_CODE>200</MNT_RESULT_CODE>") {
		t.Fatalf("success envelope must carry result code 200: %s", xmlBody)
	}
	if !strings.Contains(xmlBody, "<KEY>CUSTOMER</KEY>") || !strings.Contains(xmlBody, "user@example.com") {
		t.Fatalf("missing CUSTOMER attribute: %s", xmlBody)
	}
	// The inventory JSON travels as escaped text, never as XML nodes.
	if strings.Contains(xmlBody, `"name"`) {
		t.Fatalf("inventory JSON must be XML-escaped: %s", xmlBody)
	}
	if !strings.Contains(xmlBody, "&#34;name&#34;") {
		t.Fatalf("expected escaped inventory JSON in: %s", xmlBody)
	}
}

func TestBuildPaySuccessInventoryRoundTrips(t *testing.T) {
	resp, err := BuildPaySuccess(testConfig, "T100", "user@example.com", "250 credits", 500)
	if err != nil {
		t.Fatalf("BuildPaySuccess: %v", err)
	}

	var inventoryJSON string
	for _, attr := range resp.MntAttributes.Attributes {
		if attr.Key == "INVENTORY" {
			inventoryJSON = attr.Value
		}
	}
	if inventoryJSON == "" {
		t.Fatalf("INVENTORY attribute missing")
	}

	var items []InventoryItem
	if err := json.Unmarshal([]byte(inventoryJSON), &items); err != nil {
		t.Fatalf("inventory is not valid JSON: %v", err)
	}
	if len(items) != 1 || items[0].Name != "250 credits" || items[0].Quantity != 1 {
		t.Fatalf("unexpected inventory: %+v", items)
	}
}

func TestBuildPayFailureIsOpaque(t *testing.T) {
	resp := BuildPayFailure(testConfig, "T100")

	if resp.MntResultCode != ResultCodeFailure {
		t.Fatalf("result code = %q, want %q", resp.MntResultCode, ResultCodeFailure)
	}
	if resp.MntAttributes != nil {
		t.Fatalf("failure envelope must not leak attributes")
	}
	if resp.MntSignature != ResponseSignature(ResultCodeFailure, "T100", testConfig) {
		t.Fatalf("failure signature must be computed over the failure code")
	}

	out, err := resp.EncodeXML()
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	if strings.Contains(string(out), "MNT_ATTRIBUTES") {
		t.Fatalf("failure envelope must omit the attributes block: %s", out)
	}
}

func TestNotificationPhase(t *testing.T) {
	tests := []struct {
		name    string
		decoded map[string]string
		want    Phase
	}{
		{name: "no operation id", decoded: map[string]string{FieldTransactionID: "T1"}, want: PhaseCheck},
		{name: "empty operation id", decoded: map[string]string{FieldOperationID: ""}, want: PhaseCheck},
		{name: "operation id present", decoded: map[string]string{FieldOperationID: "OP-1"}, want: PhasePay},
	}

	for _, tt := range tests {
		n := NotificationFromDecoded(tt.decoded)
		if got := n.Phase(); got != tt.want {
			t.Fatalf("%s: phase = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNotificationParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "500.00", want: 500},
		{in: " 150.5 ", want: 150.5},
		{in: "0", wantErr: true},
		{in: "-10", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		n := Notification{Amount: tt.in}
		got, err := n.ParseAmount()
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseAmount(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseAmount(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
