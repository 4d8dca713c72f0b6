// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import "fmt"

// UnknownPrefix is used as prefix for unknown tags.
const UnknownPrefix = "UnknownTag_"

// Tag numbers the pipeline itself reads.
const (
	tagImageWidth      = 0x0100
	tagImageHeight     = 0x0101
	tagBitsPerSample   = 0x0102
	tagCompression     = 0x0103
	tagMake            = 0x010f
	tagModel           = 0x0110
	tagStripOffsets    = 0x0111
	tagOrientation     = 0x0112
	tagSamplesPerPixel = 0x0115
	tagStripByteCounts = 0x0117
	tagSubIFDs         = 0x014a
	tagSonyBlackLevel  = 0x7310
	tagSonyWBRGGB      = 0x7313
	tagExifIFDPointer  = 0x8769
	tagGPSInfoPointer  = 0x8825
	tagXPTitle         = 0x9c9b
	tagXPComment       = 0x9c9c
	tagXPAuthor        = 0x9c9d
	tagXPKeywords      = 0x9c9e
	tagXPSubject       = 0x9c9f
	tagUserComment     = 0x9286
	tagDNGVersion      = 0xc612
)

// ExifSection identifies the directory a tag conventionally belongs to.
type ExifSection int

const (
	SectionNone ExifSection = iota
	SectionIFD0
	SectionExifIFD
	SectionSubIFD
	SectionInteropIFD
	SectionGPS
)

func (s ExifSection) String() string {
	switch s {
	case SectionIFD0:
		return "IFD0"
	case SectionExifIFD:
		return "ExifIFD"
	case SectionSubIFD:
		return "SubIFD"
	case SectionInteropIFD:
		return "InteropIFD"
	case SectionGPS:
		return "GPS"
	default:
		return "None"
	}
}

type exifField struct {
	name    string
	section ExifSection
}

// FieldName returns the conventional name for a tag number, or an
// UnknownTag_0x%x placeholder.
func FieldName(tag uint16) string {
	if f, ok := exifFields[tag]; ok {
		return f.name
	}
	return fmt.Sprintf("%s0x%x", UnknownPrefix, tag)
}

// FieldSection returns the directory a tag conventionally belongs to.
func FieldSection(tag uint16) ExifSection {
	if f, ok := exifFields[tag]; ok {
		return f.section
	}
	return SectionNone
}

var exifFields = map[uint16]exifField{
	0x0001: {"InteropIndex", SectionInteropIFD},
	0x0002: {"InteropVersion", SectionInteropIFD},
	0x000b: {"ProcessingSoftware", SectionIFD0},
	0x00fe: {"SubfileType", SectionIFD0},
	0x00ff: {"OldSubfileType", SectionIFD0},
	0x0100: {"ImageWidth", SectionIFD0},
	0x0101: {"ImageHeight", SectionIFD0},
	0x0102: {"BitsPerSample", SectionIFD0},
	0x0103: {"Compression", SectionIFD0},
	0x0106: {"PhotometricInterpretation", SectionIFD0},
	0x010a: {"FillOrder", SectionIFD0},
	0x010d: {"DocumentName", SectionIFD0},
	0x010e: {"ImageDescription", SectionIFD0},
	0x010f: {"Make", SectionIFD0},
	0x0110: {"Model", SectionIFD0},
	0x0111: {"StripOffsets", SectionIFD0},
	0x0112: {"Orientation", SectionIFD0},
	0x0115: {"SamplesPerPixel", SectionIFD0},
	0x0116: {"RowsPerStrip", SectionIFD0},
	0x0117: {"StripByteCounts", SectionIFD0},
	0x011a: {"XResolution", SectionIFD0},
	0x011b: {"YResolution", SectionIFD0},
	0x011c: {"PlanarConfiguration", SectionIFD0},
	0x0128: {"ResolutionUnit", SectionIFD0},
	0x0129: {"PageNumber", SectionIFD0},
	0x012d: {"TransferFunction", SectionIFD0},
	0x0131: {"Software", SectionIFD0},
	0x0132: {"ModifyDate", SectionIFD0},
	0x013b: {"Artist", SectionIFD0},
	0x013d: {"Predictor", SectionIFD0},
	0x013e: {"WhitePoint", SectionIFD0},
	0x013f: {"PrimaryChromaticities", SectionIFD0},
	0x0142: {"TileWidth", SectionIFD0},
	0x0143: {"TileLength", SectionIFD0},
	0x0144: {"TileOffsets", SectionNone},
	0x0145: {"TileByteCounts", SectionNone},
	0x014a: {"SubIFDs", SectionIFD0},
	0x0153: {"SampleFormat", SectionSubIFD},
	0x0201: {"ThumbnailOffset", SectionIFD0},
	0x0202: {"ThumbnailLength", SectionIFD0},
	0x0211: {"YCbCrCoefficients", SectionIFD0},
	0x0212: {"YCbCrSubSampling", SectionIFD0},
	0x0213: {"YCbCrPositioning", SectionIFD0},
	0x0214: {"ReferenceBlackWhite", SectionIFD0},
	0x02bc: {"ApplicationNotes", SectionIFD0},
	0x7000: {"SonyRawFileType", SectionSubIFD},
	0x7010: {"SonyToneCurve", SectionSubIFD},
	0x7038: {"SonyRawImageSize", SectionSubIFD},
	0x7310: {"BlackLevel", SectionSubIFD},
	0x7313: {"WB_RGGBLevels", SectionSubIFD},
	0x74c7: {"SonyCropTopLeft", SectionSubIFD},
	0x74c8: {"SonyCropSize", SectionSubIFD},
	0x8298: {"Copyright", SectionIFD0},
	0x829a: {"ExposureTime", SectionExifIFD},
	0x829d: {"FNumber", SectionExifIFD},
	0x8769: {"ExifOffset", SectionIFD0},
	0x8822: {"ExposureProgram", SectionExifIFD},
	0x8824: {"SpectralSensitivity", SectionExifIFD},
	0x8825: {"GPSInfo", SectionIFD0},
	0x8827: {"ISO", SectionExifIFD},
	0x882a: {"TimeZoneOffset", SectionExifIFD},
	0x8830: {"SensitivityType", SectionExifIFD},
	0x8832: {"RecommendedExposureIndex", SectionExifIFD},
	0x9000: {"ExifVersion", SectionExifIFD},
	0x9003: {"DateTimeOriginal", SectionExifIFD},
	0x9004: {"CreateDate", SectionExifIFD},
	0x9010: {"OffsetTime", SectionExifIFD},
	0x9011: {"OffsetTimeOriginal", SectionExifIFD},
	0x9101: {"ComponentsConfiguration", SectionExifIFD},
	0x9102: {"CompressedBitsPerPixel", SectionExifIFD},
	0x9201: {"ShutterSpeedValue", SectionExifIFD},
	0x9202: {"ApertureValue", SectionExifIFD},
	0x9203: {"BrightnessValue", SectionExifIFD},
	0x9204: {"ExposureCompensation", SectionExifIFD},
	0x9205: {"MaxApertureValue", SectionExifIFD},
	0x9206: {"SubjectDistance", SectionExifIFD},
	0x9207: {"MeteringMode", SectionExifIFD},
	0x9208: {"LightSource", SectionExifIFD},
	0x9209: {"Flash", SectionExifIFD},
	0x920a: {"FocalLength", SectionExifIFD},
	0x927c: {"MakerNote", SectionExifIFD},
	0x9286: {"UserComment", SectionExifIFD},
	0x9290: {"SubSecTime", SectionExifIFD},
	0x9291: {"SubSecTimeOriginal", SectionExifIFD},
	0x9292: {"SubSecTimeDigitized", SectionExifIFD},
	0x9c9b: {"XPTitle", SectionIFD0},
	0x9c9c: {"XPComment", SectionIFD0},
	0x9c9d: {"XPAuthor", SectionIFD0},
	0x9c9e: {"XPKeywords", SectionIFD0},
	0x9c9f: {"XPSubject", SectionIFD0},
	0xa000: {"FlashpixVersion", SectionExifIFD},
	0xa001: {"ColorSpace", SectionExifIFD},
	0xa002: {"ExifImageWidth", SectionExifIFD},
	0xa003: {"ExifImageHeight", SectionExifIFD},
	0xa005: {"InteropOffset", SectionExifIFD},
	0xa20e: {"FocalPlaneXResolution", SectionExifIFD},
	0xa20f: {"FocalPlaneYResolution", SectionExifIFD},
	0xa210: {"FocalPlaneResolutionUnit", SectionExifIFD},
	0xa217: {"SensingMethod", SectionExifIFD},
	0xa300: {"FileSource", SectionExifIFD},
	0xa301: {"SceneType", SectionExifIFD},
	0xa302: {"CFAPattern", SectionExifIFD},
	0xa401: {"CustomRendered", SectionExifIFD},
	0xa402: {"ExposureMode", SectionExifIFD},
	0xa403: {"WhiteBalance", SectionExifIFD},
	0xa404: {"DigitalZoomRatio", SectionExifIFD},
	0xa405: {"FocalLengthIn35mmFormat", SectionExifIFD},
	0xa406: {"SceneCaptureType", SectionExifIFD},
	0xa407: {"GainControl", SectionExifIFD},
	0xa408: {"Contrast", SectionExifIFD},
	0xa409: {"Saturation", SectionExifIFD},
	0xa40a: {"Sharpness", SectionExifIFD},
	0xa420: {"ImageUniqueID", SectionExifIFD},
	0xa430: {"OwnerName", SectionExifIFD},
	0xa431: {"SerialNumber", SectionExifIFD},
	0xa432: {"LensInfo", SectionExifIFD},
	0xa433: {"LensMake", SectionExifIFD},
	0xa434: {"LensModel", SectionExifIFD},
	0xa435: {"LensSerialNumber", SectionExifIFD},
	0xc612: {"DNGVersion", SectionIFD0},
	0xc613: {"DNGBackwardVersion", SectionIFD0},
	0xc614: {"UniqueCameraModel", SectionIFD0},
	0xc617: {"CFAPlaneColor", SectionSubIFD},
	0xc618: {"CFALayout", SectionSubIFD},
	0xc619: {"BlackLevelRepeatDim", SectionSubIFD},
	0xc61a: {"BlackLevel", SectionSubIFD},
	0xc61d: {"WhiteLevel", SectionSubIFD},
	0xc61f: {"DefaultCropOrigin", SectionSubIFD},
	0xc620: {"DefaultCropSize", SectionSubIFD},
	0xc621: {"ColorMatrix1", SectionIFD0},
	0xc622: {"ColorMatrix2", SectionIFD0},
	0xc627: {"AnalogBalance", SectionIFD0},
	0xc628: {"AsShotNeutral", SectionIFD0},
	0xc629: {"AsShotWhiteXY", SectionIFD0},
	0xc62a: {"BaselineExposure", SectionIFD0},
	0xc65a: {"CalibrationIlluminant1", SectionIFD0},
	0xc65b: {"CalibrationIlluminant2", SectionIFD0},
}
