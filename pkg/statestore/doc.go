// Copyright 2017 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package statestore implements an MVCC key-value store backed by an
// embedded, ordered byte-key engine (see pkg/statestore/kv). It exposes
// Etcd-style point get, ranged read, conditional put, ranged delete, and
// compare-and-swap transactions with strict per-key monotonic-revision
// semantics, and a single store-wide lock in place of snapshot isolation.
package statestore
