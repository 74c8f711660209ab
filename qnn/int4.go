// Copyright 2025 go-highway Authors
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

package qnn

// UnpackInt4 expands len(out) signed 4-bit values from packed into out.
// Each byte holds two values, low nibble first; nibbles are sign-extended.
//
//	packed byte 0x9F -> out[2i] = -1 (0xF), out[2i+1] = -7 (0x9)
func UnpackInt4(packed []int8, out []int8) {
	n := len(out)
	if len(packed) < (n+1)/2 {
		panic("qnn: UnpackInt4 packed too short")
	}

	i := 0
	for ; i+1 < n; i += 2 {
		b := packed[i/2]
		out[i] = (b << 4) >> 4
		out[i+1] = b >> 4
	}

	// Odd tail
	if i < n {
		out[i] = (packed[i/2] << 4) >> 4
	}
}

// PackInt4 is the inverse of UnpackInt4. Values outside [-8, 7] are
// truncated to their low four bits.
func PackInt4(values []int8) PackedInt4 {
	packed := make(PackedInt4, (len(values)+1)/2)
	for i, v := range values {
		nib := uint8(v) & 0x0F
		if i%2 == 1 {
			nib <<= 4
		}
		packed[i/2] = int8(uint8(packed[i/2]) | nib)
	}
	return packed
}
