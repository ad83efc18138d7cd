// SPDX-License-Identifier: MPL-2.0

// Package imageconfig loads and validates turludock image configurations.
//
// An image configuration names a ROS distribution, a GPU driver, optional
// CUDA/cuDNN versions and optional extra tooling packages. It can come from
// an embedded preset or from a user file in YAML, TOML or CUE:
//
//	ros_version: humble
//	gpu_driver: nvidia
//	cuda_version: 12.4.1
//	cudnn_version: 8.9.7
//	extra_packages:
//	  - tmux
//	  - llvm: 18
//
// Every format is decoded to a generic document and checked against the
// embedded schema.cue before it is converted to an ImageConfig. Semantic
// checks (allow-lists, version tables, upstream tags) live in Validator.
package imageconfig
