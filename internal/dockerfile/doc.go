// SPDX-License-Identifier: MPL-2.0

// Package dockerfile turns a validated image configuration into a Dockerfile.
//
// Resolve pins every moving part (tool versions, base image, CUDA/cuDNN
// entries) into a Plan. Compose renders the embedded fragment templates for
// that Plan in a fixed order. ImageTag and Description derive the image
// name and label from the configuration alone.
package dockerfile
