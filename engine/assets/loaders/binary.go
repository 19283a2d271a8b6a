package loaders

import (
	"fmt"

	"github.com/spaghettifunk/delta/engine/core"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// BytesToBytecode reinterprets a little endian SPIR-V blob as words and checks
// its header.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) < 20 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: spir-v blob of %d bytes", core.ErrParseError, len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	if byteCode[0] != SPIRVMagic {
		return nil, fmt.Errorf("%w: bad spir-v magic %#08x", core.ErrParseError, byteCode[0])
	}
	return byteCode, nil
}
