// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// DefaultToken is the token handed out by a zero [Credential].
const DefaultToken = "emulator-token"

// Credential is a static azcore.TokenCredential for talking to the emulator.
type Credential struct {
	Token string
}

// GetToken implements azcore.TokenCredential.
func (c Credential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return azcore.AccessToken{}, err
	}
	token := c.Token
	if token == "" {
		token = DefaultToken
	}
	return azcore.AccessToken{Token: token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}
