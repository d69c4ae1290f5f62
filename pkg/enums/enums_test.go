package enums

import "testing"

func TestParseRoleNormalizes(t *testing.T) {
	role, err := ParseRole(" Manager ")
	if err != nil {
		t.Fatalf("parse role: %v", err)
	}
	if role != RoleManager {
		t.Fatalf("expected manager, got %s", role)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestOrderTypeStockSign(t *testing.T) {
	if OrderTypeCredit.StockSign() != -1 {
		t.Fatalf("credit orders should remove stock")
	}
	if OrderTypeDebit.StockSign() != 1 {
		t.Fatalf("debit orders should add stock")
	}
	if OrderTypeDebit.TransactionType() != TransactionTypeDebit {
		t.Fatalf("debit order should map to debit transaction")
	}
}

func TestParsePaymentType(t *testing.T) {
	if _, err := ParsePaymentType("cheque"); err == nil {
		t.Fatalf("expected invalid payment type")
	}
	pt, err := ParsePaymentType("credit")
	if err != nil || pt != PaymentTypeCredit {
		t.Fatalf("unexpected parse result %q %v", pt, err)
	}
}
