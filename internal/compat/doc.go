// SPDX-License-Identifier: MPL-2.0

// Package compat holds the static version tables turludock validates against.
//
// The ROS table maps a distribution codename to its ROS major version, the
// Ubuntu release it targets and its release date. The NVIDIA tables map a CUDA
// version to the Ubuntu releases it ships for (with the apt pins the Dockerfile
// fragments need), and a cuDNN version to the Ubuntu releases and CUDA versions
// it is compatible with. The NVIDIA tables are embedded as CUE and validated
// against nvidia_schema.cue on first use.
package compat
