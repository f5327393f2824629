/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package deeds provides a declarative operation language: plain data
// trees that describe intended effects, and an engine that resolves
// embedded references and dispatches each operation to a registered
// plugin.
//
// The engine is in package 'core'.  Backend adapters live under
// 'plugins', tree-construction helpers in 'build', and a little
// command-line runner in 'cmd/deedrun'.
package deeds
