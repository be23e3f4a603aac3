package http

// VerifyWebhookSignature is exported for testing
var VerifyWebhookSignature = verifyWebhookSignature

// BearerToken is exported for testing
var BearerToken = bearerToken
