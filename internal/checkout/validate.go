package checkout

import "strings"

// ValidationError blocks submission; it is surfaced inline to the customer
// and is not logged as a failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(msg string) error {
	return &ValidationError{Message: msg}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func contactFieldsComplete(c Customer) bool {
	return !blank(c.FirstName) && !blank(c.LastName) && !blank(c.Email) && !blank(c.Phone)
}

// validateForOrder is the gate in front of every submission attempt.
// Delivery orders additionally require a complete in-zone address, AeroPay
// with a selected bank, and a chosen delivery slot.
func validateForOrder(s *Session) error {
	if !contactFieldsComplete(s.Customer) {
		return validationErrorf("Please fill out all contact fields.")
	}

	if len(s.Items) == 0 {
		return validationErrorf("Your cart is empty.")
	}

	if s.OrderType == OrderTypeDelivery {
		addr := s.DeliveryAddress
		if blank(addr.Street) || blank(addr.City) || blank(addr.Zip) {
			return validationErrorf("Please fill out the delivery address.")
		}
		if s.PaymentMethod != PaymentMethodAeroPay {
			return validationErrorf("Delivery orders must be paid with AeroPay.")
		}
		if s.SelectedBankID == "" {
			return validationErrorf("Please select a bank account.")
		}
		if !s.AddressValid {
			return validationErrorf("This address is outside the delivery zone.")
		}
		if s.DeliveryDate == "" || s.DeliveryTime == "" {
			return validationErrorf("Please choose a delivery date and time.")
		}
	}

	if s.PaymentMethod == PaymentMethodAeroPay && s.SelectedBankID == "" {
		return validationErrorf("Please select a bank account.")
	}

	return nil
}
