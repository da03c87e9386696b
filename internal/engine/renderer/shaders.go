package renderer

const meshVertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec2 vUV;
out vec3 vNormal;

void main() {
    vUV = aUV;
    vNormal = mat3(uModel) * aNormal;
    gl_Position = uProjection * uView * uModel * vec4(aPos, 1.0);
}
`

const meshFragmentShader = `
#version 410 core
in vec2 vUV;
in vec3 vNormal;

uniform sampler2D uTexture;
uniform vec4 uColor;
uniform float uOpacity;
uniform bool uUnlit;
uniform float uMetalness;
// Ambient irradiance already divided by pi.
uniform vec3 uAmbient;

out vec4 FragColor;

void main() {
    vec4 base = uColor * texture(uTexture, vUV);
    vec3 rgb = base.rgb;
    if (!uUnlit) {
        rgb = rgb * (1.0 - uMetalness) * uAmbient;
    }
    FragColor = vec4(rgb, base.a * uOpacity);
}
`

const spriteVertexShader = `
#version 410 core
layout (location = 0) in vec2 aCorner;

uniform mat4 uView;
uniform mat4 uProjection;
uniform vec3 uCenter;
// Half height of the quad in normalized device units.
uniform float uHalfSize;
uniform float uAspect;

out vec2 vUV;

void main() {
    vUV = vec2(aCorner.x * 0.5 + 0.5, 0.5 - aCorner.y * 0.5);
    vec4 clip = uProjection * uView * vec4(uCenter, 1.0);
    clip.xy += aCorner * vec2(uHalfSize / uAspect, uHalfSize) * clip.w;
    gl_Position = clip;
}
`

const spriteFragmentShader = `
#version 410 core
in vec2 vUV;

uniform sampler2D uTexture;
uniform vec4 uColor;
uniform float uOpacity;

out vec4 FragColor;

void main() {
    vec4 c = uColor * texture(uTexture, vUV);
    FragColor = vec4(c.rgb, c.a * uOpacity);
}
`
