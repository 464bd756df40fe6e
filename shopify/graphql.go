package shopify

import "context"

// Storefront GraphQL documents. Each proxy endpoint binds client
// variables to one of these fixed operations; clients never submit
// their own query text.

const getCheckoutQuery = `
query GetCheckout($id: ID!) {
    node(id: $id) {
        ... on Checkout {
        id
        ready
        currencyCode
        subtotalPriceV2{
            amount
        }
        taxesIncluded
        totalTaxV2{
            amount
        }
        totalPriceV2 {
            amount
        }
        }
    }
}
`

const createCheckoutMutation = `
mutation checkoutCreate($lineItems: [CheckoutLineItemInput!]) {
    checkoutCreate(input: { lineItems: $lineItems }) {
      checkout {
        id
        webUrl
      }
      checkoutUserErrors {
        code
        field
        message
      }
    }
  }
`

const updateCheckoutEmailMutation = `
mutation checkoutEmailUpdateV2($checkoutID: ID!, $email: String!) {
  checkoutEmailUpdateV2(checkoutId: $checkoutID, email: $email) {
    checkout {
      id
    }
    checkoutUserErrors {
      code
      field
      message
    }
  }
}
`

const updateCheckoutAttributesMutation = `
mutation checkoutAttributesUpdateV2($checkoutID: ID!, $attributes: [AttributeInput!]) {
      checkoutAttributesUpdateV2(checkoutId: $checkoutID, input: { customAttributes: $attributes}) {
        checkout {
          id
        }
        checkoutUserErrors {
          code
          field
          message
        }
      }
    }
`

const updateShippingLineMutation = `
mutation checkoutShippingLineUpdate($checkoutID: ID!, $shippingRates: String!) {
      checkoutShippingLineUpdate(checkoutId: $checkoutID, shippingRateHandle: $shippingRates) {
        checkout {
          id
        }
        checkoutUserErrors {
          code
          field
          message
        }
      }
    }
`

const updateCheckoutShippingAddressMutation = `
mutation checkoutShippingAddressUpdateV2($checkoutID: ID!, $shippingAddress: MailingAddressInput!) {
      checkoutShippingAddressUpdateV2(checkoutId: $checkoutID, shippingAddress: $shippingAddress) {
        checkout {
          id
        }
        checkoutUserErrors {
          code
          field
          message
        }
      }
    }
`

const createCustomerMutation = `
mutation customerCreate($customerInfo: CustomerCreateInput!) {
      customerCreate(input: $customerInfo) {
        customer {
          id
        }
        customerUserErrors {
          code
          field
          message
        }
      }
    }
`

// GetCheckout fetches checkout totals by checkout id.
func (c *Client) GetCheckout(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, getCheckoutQuery, variables, clientIP)
}

// CreateCheckout creates a checkout from line items.
func (c *Client) CreateCheckout(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, createCheckoutMutation, variables, clientIP)
}

// UpdateCheckoutEmail sets the checkout email.
func (c *Client) UpdateCheckoutEmail(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, updateCheckoutEmailMutation, variables, clientIP)
}

// UpdateCheckoutAttributes replaces the checkout's custom attributes.
func (c *Client) UpdateCheckoutAttributes(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, updateCheckoutAttributesMutation, variables, clientIP)
}

// UpdateShippingLine sets the checkout's shipping rate.
func (c *Client) UpdateShippingLine(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, updateShippingLineMutation, variables, clientIP)
}

// UpdateCheckoutShippingAddress sets the checkout's shipping address.
func (c *Client) UpdateCheckoutShippingAddress(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, updateCheckoutShippingAddressMutation, variables, clientIP)
}

// CreateCustomer registers a storefront customer.
func (c *Client) CreateCustomer(ctx context.Context, variables any, clientIP string) (*Result, error) {
	return c.graphql(ctx, createCustomerMutation, variables, clientIP)
}
