// Copyright (c) Microsoft. All rights reserved.

// Package inference calls the chat completions endpoint of a model
// deployment in an Azure AI Foundry (or Azure OpenAI) resource.
//
//	client := inference.New(os.Getenv("INFERENCE_ENDPOINT"),
//	    inference.WithModel("gpt-4o"),
//	    inference.WithAzureCredential(cred),
//	)
//	resp, err := client.Complete(ctx, []inference.Message{
//	    inference.UserMessage("How many feet are in a mile?"),
//	})
//
// # Configuration
//
//   - [WithModel]: deployment name used in the request path
//   - [WithAPIVersion]: api-version query parameter
//   - [WithAPIKey]: authenticate with the api-key header
//   - [WithAzureCredential]: authenticate with an Entra ID bearer token
//   - [WithHTTPClient]: provide a custom http.Client
//
// # Testing
//
// Provide a mock http.Client via [WithHTTPClient] with a custom
// RoundTripper, or point the client at the in-process emulator.
package inference
