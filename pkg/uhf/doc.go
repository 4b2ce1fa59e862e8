// Package uhf drives UHF RFID readers that speak the Reader18 binary
// protocol (UHFReader288 family, ST-8504 and similar) over a serial line or
// a TCP socket.
//
// Frames sent to the reader are
//
//	Len Adr Cmd Data... CRC-LSB CRC-MSB
//
// and replies are
//
//	Len Adr reCmd Status Data... CRC-LSB CRC-MSB
//
// where Len counts every byte after itself and the CRC is CRC-16 with
// preset 0xFFFF and polynomial 0x8408 over all preceding bytes.
//
// The Reader method set mirrors the vendor SDK the front-end was written
// against: most methods return a device status code (0 on success) rather
// than an error, and output values are written into caller supplied
// slices.
package uhf
