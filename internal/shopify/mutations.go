package shopify

// ProductCreateMutation creates a product; used to seed sample products
const ProductCreateMutation = `
mutation populateProduct($input: ProductInput!) {
  productCreate(input: $input) {
    product {
      id
      title
    }
    userErrors {
      field
      message
    }
  }
}
`

// ProductCreateResult is the productCreate payload
type ProductCreateResult struct {
	ProductCreate struct {
		Product *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"product"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"productCreate"`
}

// WebhookSubscriptionCreateMutation subscribes the app to a webhook topic
const WebhookSubscriptionCreateMutation = `
mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $callbackUrl: URL!) {
  webhookSubscriptionCreate(topic: $topic, webhookSubscription: { callbackUrl: $callbackUrl, format: JSON }) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}
`

// WebhookSubscriptionCreateResult is the webhookSubscriptionCreate payload
type WebhookSubscriptionCreateResult struct {
	WebhookSubscriptionCreate struct {
		WebhookSubscription *struct {
			ID string `json:"id"`
		} `json:"webhookSubscription"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"webhookSubscriptionCreate"`
}
