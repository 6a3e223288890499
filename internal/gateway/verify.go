// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import "context"

// verifyPrompt is the fixed probe sent during credential verification.
const verifyPrompt = "Ping"

// Verify checks a credential by sending a minimal completion to a cheap
// model. Any non-error response means the credential works; every failure
// mode maps to false.
func Verify(ctx context.Context, credential string) bool {
	return VerifyWith(ctx, NewClient(credential))
}

// VerifyWith runs the verification probe through an existing client,
// allowing a custom base URL.
func VerifyWith(ctx context.Context, client *Client) bool {
	_, err := client.Complete(ctx, VerifyModel, []WireMessage{
		{Role: "user", Content: verifyPrompt},
	})
	return err == nil
}
