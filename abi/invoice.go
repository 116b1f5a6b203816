package abi

import (
	"encoding/json"

	"github.com/ipfs/go-cid"

	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/invoice"
	"github.com/wippyai/citadel-abi/resource"
)

// InvoiceCreate is invoice_create. An empty contractID leaves the invoice
// unbound to any asset; expiry is unix seconds, 0 for none.
func (c *Context) InvoiceCreate(contractID string, amount uint64, beneficiary string, expiry int64, memo string) (resource.Handle, error) {
	return run(c, "invoice_create", func() (resource.Handle, error) {
		id := cid.Undef
		if contractID != "" {
			var err error
			if id, err = contract.ParseID(contractID); err != nil {
				return 0, err
			}
		}
		inv, err := invoice.New(id, amount, beneficiary, expiry, memo)
		if err != nil {
			return 0, err
		}
		return c.b.invoices.Insert(inv)
	})
}

// InvoiceParse is invoice_parse.
func (c *Context) InvoiceParse(s string) (resource.Handle, error) {
	return run(c, "invoice_parse", func() (resource.Handle, error) {
		inv, err := invoice.Parse(s)
		if err != nil {
			return 0, err
		}
		return c.b.invoices.Insert(inv)
	})
}

// InvoiceString is invoice_to_string.
func (c *Context) InvoiceString(h resource.Handle) (resource.Handle, error) {
	return run(c, "invoice_to_string", func() (resource.Handle, error) {
		var s string
		err := c.b.invoices.With(h, resource.Shared, func(inv *invoice.Invoice) error {
			var err error
			s, err = inv.Text()
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.PutString(s)
	})
}

// InvoiceAmount is invoice_amount.
func (c *Context) InvoiceAmount(h resource.Handle) (uint64, error) {
	return run(c, "invoice_amount", func() (uint64, error) {
		var v uint64
		err := c.b.invoices.With(h, resource.Shared, func(inv *invoice.Invoice) error {
			v = inv.Amount
			return nil
		})
		return v, err
	})
}

// InvoiceExpired is invoice_expired, evaluated against the boundary clock.
func (c *Context) InvoiceExpired(h resource.Handle) (bool, error) {
	return run(c, "invoice_expired", func() (bool, error) {
		var expired bool
		err := c.b.invoices.With(h, resource.Shared, func(inv *invoice.Invoice) error {
			expired = inv.Expired(c.b.now())
			return nil
		})
		return expired, err
	})
}

// InvoiceInfo is invoice_info: a JSON description of the invoice.
func (c *Context) InvoiceInfo(h resource.Handle) (resource.Handle, error) {
	return run(c, "invoice_info", func() (resource.Handle, error) {
		var info invoice.Info
		err := c.b.invoices.With(h, resource.Shared, func(inv *invoice.Invoice) error {
			var err error
			info, err = inv.Info()
			return err
		})
		if err != nil {
			return 0, err
		}
		raw, err := json.Marshal(info)
		if err != nil {
			return 0, errors.Serialization(nil, "invoice info: %v", err)
		}
		return c.b.bufs.Put(raw)
	})
}

// InvoiceDestroy is invoice_destroy.
func (c *Context) InvoiceDestroy(h resource.Handle) error {
	return c.call("invoice_destroy", func() error {
		return c.b.invoices.Destroy(h)
	})
}
